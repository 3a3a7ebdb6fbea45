// Package dedup implements the three deduplication stages that turn raw
// earnings-call components into a canonical component set.
//
// Stage 1 (RemoveIntraRecordingDuplicates) drops repeated texts inside one
// recording, keeping the first occurrence in sequence order.
//
// Stage 2 (MergeEvents) groups recordings by the natural key
// (company_id, headline, event_date), elects the smallest recording id as the
// canonical identity of each event and keeps the ordered union of distinct
// texts of every recording in the group.
//
// Stage 3 (CleanupCompanies) drops texts that repeat verbatim across
// different events of the same company. It is lossy and can be disabled with
// Options.CompanyCleanup.
//
// Each stage is a pure function of its input and returns a fresh value plus
// its StageMetrics. The invariant checks in invariants.go are run by the
// pipeline orchestrator between and after the stages.
package dedup
