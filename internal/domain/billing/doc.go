// Package billing provides the invoice ledger at the heart of the water
// utility back office.
//
// Key Aggregates:
//   - Invoice: the billable unit with its monetary breakdown and payment
//     state machine (PENDING -> PAID / OVERDUE / CANCELLED)
//   - CalibrationFee: a one-off billable event carrying a back-reference to
//     the invoice that bills it
//
// Entities:
//   - Receipt: the immutable proof of a settlement, cash or bank transfer
//
// Invariants enforced here rather than in the application layer:
//   - an invoice total always equals subtotal + VAT + environment fee + late fee
//   - a fee is billed by at most one non-cancelled invoice at a time
//   - late fees accrue at most once per invoice
//
// The billing domain collaborates with the contract domain (meter readings,
// contract references) and the notification domain (customer fan-out after
// ledger commits).
package billing
