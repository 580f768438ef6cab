// Package export runs invoice exports for callers: it validates the document,
// serializes exports per invoice, resolves assets, plans and renders pages,
// assembles the artifact and records the outcome as an export job.
package export
