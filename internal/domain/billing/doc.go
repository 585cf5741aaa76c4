// Package billing contains the monthly billing cycle engine for the rental
// property system. A PaymentCycle is one calendar month's billing run; it owns
// one RoomCharge per occupied room. Each RoomCharge accumulates base rent,
// electric and water meter readings, ad-hoc fee instances and payment records,
// and moves through a payment-status lifecycle. FeeType is the reusable
// catalog template that fee instances are stamped from.
//
// All derived amounts (utility totals, custom fee totals, total due, amount
// remaining) are pure functions of stored fields and are recomputed on every
// read; they are never persisted independently.
package billing
