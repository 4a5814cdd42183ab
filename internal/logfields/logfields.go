package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyJobID       = "job_id"
	KeyStage       = "stage"
	KeyDurationMS  = "duration_ms"
	KeyPath        = "path"
	KeyFile        = "file"
	KeyPass        = "pass"
	KeyExitCode    = "exit_code"
	KeyDestination = "destination"
	KeyFingerprint = "fingerprint"
	KeyName        = "name"
	KeyURL         = "url"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func JobID(id string) slog.Attr        { return slog.String(KeyJobID, id) }
func Stage(name string) slog.Attr      { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }
func Path(p string) slog.Attr          { return slog.String(KeyPath, p) }
func File(f string) slog.Attr          { return slog.String(KeyFile, f) }
func Pass(n int) slog.Attr             { return slog.Int(KeyPass, n) }
func ExitCode(c int) slog.Attr         { return slog.Int(KeyExitCode, c) }
func Destination(d string) slog.Attr   { return slog.String(KeyDestination, d) }
func Fingerprint(fp string) slog.Attr  { return slog.String(KeyFingerprint, fp) }
func Name(n string) slog.Attr          { return slog.String(KeyName, n) }
func URL(u string) slog.Attr           { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
