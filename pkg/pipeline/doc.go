// Package pipeline turns a chat completion request into a metered model call.
//
// A request passes through these stages, in order:
//
//	resolve   organization, project, model enrollment, n
//	match     products enabled on-chain and for the project
//	assemble  fetch, decrypt and classify product payloads
//	charge    balance check, payments, expenditure update
//	execute   n model calls with optional memory and web search
//
// The charge stage holds a per-organization lock so that concurrent requests
// of one organization cannot both pass the balance check against the same
// funds. Requests of different organizations never wait on each other.
//
// Every error returned by Pipeline.Complete is an *apierr.Error. Failures
// before the charge stage have no side effects.
package pipeline
