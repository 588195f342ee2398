// Package files provides file system operations over the SuiviStock data
// directories.
//
// This package contains two main components:
//
// Manager: Stages uploaded workbooks under collision-free names in the
// uploads directory and removes staged inputs and served outputs best-effort
// once a treatment run is over. Relative paths resolve against the
// application's data directories to maintain portability.
//
// Discovery: Finds produced workbooks and variation CSV exports, and sweeps
// files left behind by crashed runs out of the transient directories.
//
// Example usage:
//
//	// Stage an uploaded workbook
//	manager := files.NewManager(paths)
//	staged, err := manager.StageUpload("suivi", header.Filename, file)
//
//	// Sweep stale staged files at startup
//	discovery := files.NewDiscovery(paths.DataDir)
//	removed, err := discovery.SweepStale(paths.UploadsDir, 24*time.Hour)
package files
