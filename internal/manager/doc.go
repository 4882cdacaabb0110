// Package manager owns the process-wide ASR model: lazy loading onto the
// selected compute device, admission to the single loaded model, and status
// reporting. It is structured into small files by concern:
//
//   - manager.go: core Manager type, constructor, simple getters.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - types.go: State, Device, and the Model/Loader contracts the runtime implements.
//   - errors.go: error types and helpers (IsTooBusy, IsDependencyUnavailable).
//   - device.go: accelerator detection and device preference resolution.
//   - ensure.go: EnsureLoaded, the at-most-one-in-flight lazy load.
//   - admission.go: FIFO queue plus single in-flight slot in front of the model.
//   - infer.go: Transcribe entry point.
//   - status_report.go: Status/Snapshot reporting helpers.
//   - sanity.go: non-mutating runtime dependency report.
//   - events.go, eventpub_memory.go: lifecycle event publishing.
//
// The concrete runtime lives elsewhere (see internal/whisper); this package
// only sees it through Loader and Model, which keeps it testable with stubs.
package manager
