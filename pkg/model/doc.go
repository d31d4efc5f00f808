// Package model defines data structures shared by the Haithe core packages.
//
// # Rows
//
// Organization, Project, Product, ProjectProduct, Enrollment, Account,
// OrgMember, ProjectMember and CallEvent are GORM rows. They are created by
// administrative tooling; the completion pipeline only reads them, except for
// Organization.Expenditure which the usage ledger increments.
//
// Addresses are stored in EIP-55 checksum form (see NormalizeAddress). Older
// rows may still hold lowercase addresses, which is why product matching keeps
// a case-insensitive fallback.
//
// # Categories
//
// Product.Category is stored as a string tag and decoded once into the closed
// Category type:
//
//	knowledge:text  CategoryKnowledgeText
//	knowledge:html  CategoryKnowledgeHTML
//	knowledge:pdf   CategoryKnowledgePDF
//	knowledge:url   CategoryKnowledgeURL
//	promptset       CategoryPromptSet
//	anything else   CategoryUnknown
//
// # Catalogue
//
// The model catalogue is static. Prices are expressed in the smallest token
// unit (18 decimals), so a price of 0.0001 tokens is 100000000000000.
//
//	m, ok := model.DefaultCatalogue().ByName("gemini-2.0-flash")
package model
