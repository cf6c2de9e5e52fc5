// Package receipt implements goods-receipt creation against the ERP.
//
// The same pipeline serves purchase orders, transfer orders, and
// add-to-existing receipts, parameterized by order kind rather than
// duplicated per flow:
//
//	┌──────────────────────────────────────────────────────────┐
//	│                Workflow (workflow.go)                     │
//	│  Fetch order → prefill from slip/scan → submit batch      │
//	│  ┌────────────┐   ┌────────────┐   ┌─────────────────┐   │
//	│  │  Sections  │──▶│  Staging   │──▶│  Orchestrator    │   │
//	│  │(sections.go)│  │(staging.go)│   │(orchestrator.go) │   │
//	│  └────────────┘   └────────────┘   └─────────────────┘   │
//	└──────────────────────────────────────────────────────────┘
//
// # Sections and staging
//
// Each order line carries an ordered list of partial-receive sections
// (quantity, lot, expiry) with dense indices 1..N. The staging builder
// groups sections by index across all lines: every index with at least one
// valid section becomes one backend-submittable request. A section is valid
// when its quantity is positive and its lot is non-blank; vendor receipts
// additionally require an expiry.
//
// # Submission
//
// Parts are submitted strictly sequentially in ascending section index
// because every part after the first must embed the receipt-header id
// resolved from the first success. Failures on one part never stop the
// batch; callers inspect per-part state afterwards. There is deliberately
// no aggregate pass/fail flag.
//
// # Thread safety
//
// The orchestrator is the sole owner of its progress state and publishes
// immutable snapshots to observers. A second Run while a batch is active
// is rejected with ErrBatchActive.
package receipt
