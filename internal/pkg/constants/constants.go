package constants

// viper keys
const (
	ViperHTTPAddrKey            = "http.addr"
	ViperHTTPShutdownTimeoutKey = "http.shutdown_timeout"
	ViperHTTPCORSOriginsKey     = "http.cors_origins"

	ViperDBDSNKey            = "db.dsn"
	ViperDBConnectRetriesKey = "db.connect_retries"

	ViperLogLevelKey    = "log.level"
	ViperLogEncodingKey = "log.encoding"

	ViperSearchDefaultPageSizeKey = "search.default_page_size"
	ViperSearchMaxPageSizeKey     = "search.max_page_size"

	ViperIngestMaxDiagnosticsKey = "ingest.max_diagnostics"
	ViperIngestMaxUploadKey      = "ingest.max_upload"

	ViperExportNullMarkerKey = "export.null_marker"
)

const (
	HeaderRequestID = "X-Request-ID"
	CtxKeyRequestID = "request_id"
)
