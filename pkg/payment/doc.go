// Package payment charges an organization for a completion call.
//
// A call has two kinds of cost: the per-call price of every enabled product,
// owed to the product's creator, and the per-call price of the model, owed to
// the platform. Both are collected through the HaitheOrchestrator contract,
// which pulls tUSDT from the organization contract.
//
// # Worklist
//
// The knowledge assembler produces one Item per enabled product:
//
//	items := []payment.Item{
//		{Product: "0xD122...", Creator: "0xdbF0...", Amount: 100},
//	}
//	total, err := payment.TotalCost(modelPrice, items)
//
// TotalCost is computed before anything is charged so the balance check can
// run first.
//
// # Collection
//
// Collector.Collect walks the worklist in order:
//  1. Items with a zero amount are skipped.
//  2. The creator id is looked up on the orchestrator. Creators that never
//     registered (id 0) are skipped silently.
//  3. collectPaymentForCall is sent and mined before the next item.
//  4. Finally collectPaymentForLLMCall is sent when the model price is not zero.
//
// A failed transaction stops the walk and returns an error wrapping
// ErrTransactionFailed. Payments mined before the failure stay mined; there is
// no compensation.
package payment
