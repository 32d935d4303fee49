package log

// Common field names for structured logging
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldError         = "error"
	FieldOperation     = "operation"
	FieldTgID          = "tg_id"
	FieldAccountTgID   = "account_tg_id"
	FieldCardID        = "card_id"
	FieldJarID         = "jar_id"
	FieldTransactionID = "transaction_id"
	FieldCurrencyCode  = "currency_code"
	FieldMSO           = "mso"
	FieldMonth         = "month"
)

// Components defines standard component names
const (
	ComponentApp      = "app"
	ComponentHTTP     = "http"
	ComponentStorage  = "storage"
	ComponentBank     = "monobank"
	ComponentIngest   = "ingest"
	ComponentAccess   = "access"
	ComponentReport   = "report"
	ComponentAMQP     = "amqp"
	ComponentTelegram = "telegram"
	ComponentPoller   = "poller"
	ComponentCache    = "cache"
)

// Operations defines standard operation names
const (
	OpCreate   = "create"
	OpUpdate   = "update"
	OpDelete   = "delete"
	OpList     = "list"
	OpSync     = "sync"
	OpIngest   = "ingest"
	OpNotify   = "notify"
	OpValidate = "validate"
	OpShutdown = "shutdown"
	OpStartup  = "startup"
)

// LogFields provides a builder pattern for structured log fields
type LogFields map[string]any

// NewFields creates a new LogFields instance
func NewFields() LogFields {
	return make(LogFields)
}

// WithComponent adds component field
func (f LogFields) WithComponent(component string) LogFields {
	f[FieldComponent] = component
	return f
}

// WithError adds error field
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

// WithOperation adds operation field
func (f LogFields) WithOperation(op string) LogFields {
	f[FieldOperation] = op
	return f
}

// WithTransaction adds statement item fields
func (f LogFields) WithTransaction(id, sourceID string, amount int64) LogFields {
	f[FieldTransactionID] = id
	f["source_id"] = sourceID
	f["amount"] = amount
	return f
}

// WithAccount adds the owning account field
func (f LogFields) WithAccount(tgID int64) LogFields {
	f[FieldAccountTgID] = tgID
	return f
}

// ToSlice converts LogFields to a slice for slog
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
