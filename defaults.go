package chainenv

// DefaultDataDirName is the directory created under the system temp dir
// for backend log files when no data directory is configured via
// WithDataDir.
const DefaultDataDirName = "chainenv"
