package log

// Attribute keys shared by every ledger log record.
const (
	FieldComponent     = "component"
	FieldRequestID     = "request_id"
	FieldClientIP      = "client_ip"
	FieldMethod        = "method"
	FieldPath          = "path"
	FieldQuery         = "query"
	FieldStatusCode    = "status_code"
	FieldDuration      = "duration_ms"
	FieldUserAgent     = "user_agent"
	FieldReferer       = "referer"
	FieldSuccess       = "success"
	FieldError         = "error"
	FieldErrorType     = "error_type"
	FieldOperation     = "operation"
	FieldUserID        = "user_id"
	FieldActorID       = "actor_id"
	FieldRole          = "role"
	FieldCategoryID    = "category_id"
	FieldTypeID        = "type_id"
	FieldTransactionID = "transaction_id"
	FieldMachineName   = "machine_name"
	FieldAmount        = "amount"
	FieldBatchID       = "batch_id"
	FieldCreatedCount  = "created_count"
	FieldSkippedCount  = "skipped_count"
	FieldEventKind     = "event_kind"
)

// Components, one per service or process.
const (
	ComponentApp         = "app"
	ComponentHTTP        = "http"
	ComponentCategory    = "category"
	ComponentType        = "transaction_type"
	ComponentTransaction = "transaction"
	ComponentUser        = "user"
	ComponentImport      = "import"
	ComponentAMQP        = "amqp"
	ComponentWorker      = "worker"
	ComponentCache       = "cache"
	ComponentTrace       = "trace"
	ComponentCLI         = "cli"
)

const (
	OpCreate = "create"
	OpUpdate = "update"
	OpDelete = "delete"
	OpImport = "import"
)

const (
	ErrorTypeInternal  = "internal_error"
	ErrorTypeSecurity  = "security_event"
	ErrorTypeRateLimit = "rate_limited"
)

// LogFields collects attributes for one record. Empty strings are not
// recorded.
type LogFields map[string]any

func NewFields() LogFields {
	return make(LogFields)
}

func (f LogFields) set(key, value string) LogFields {
	if value != "" {
		f[key] = value
	}
	return f
}

func (f LogFields) WithComponent(component string) LogFields {
	return f.set(FieldComponent, component)
}

func (f LogFields) WithRequestID(requestID string) LogFields {
	return f.set(FieldRequestID, requestID)
}

func (f LogFields) WithClientIP(ip string) LogFields {
	return f.set(FieldClientIP, ip)
}

// WithError is a no-op for a nil err.
func (f LogFields) WithError(err error) LogFields {
	if err != nil {
		f[FieldError] = err.Error()
	}
	return f
}

func (f LogFields) WithOperation(op string) LogFields {
	return f.set(FieldOperation, op)
}

func (f LogFields) WithErrorType(errorType string) LogFields {
	return f.set(FieldErrorType, errorType)
}

// WithIdentity records the caller resolved for a request.
func (f LogFields) WithIdentity(userID int64, role string) LogFields {
	f[FieldUserID] = userID
	return f.set(FieldRole, role)
}

// WithTransaction records a written transaction. user_id is the owner,
// not the caller.
func (f LogFields) WithTransaction(id, ownerID, categoryID, typeID int64, amount string) LogFields {
	f[FieldTransactionID] = id
	f[FieldUserID] = ownerID
	f[FieldCategoryID] = categoryID
	f[FieldTypeID] = typeID
	return f.set(FieldAmount, amount)
}

func (f LogFields) WithImport(batchID string, created, skipped int) LogFields {
	f[FieldCreatedCount] = created
	f[FieldSkippedCount] = skipped
	return f.set(FieldBatchID, batchID)
}

func (f LogFields) WithHTTPRequest(method, path, query, userAgent, referer string) LogFields {
	return f.set(FieldMethod, method).
		set(FieldPath, path).
		set(FieldQuery, query).
		set(FieldUserAgent, userAgent).
		set(FieldReferer, referer)
}

func (f LogFields) WithHTTPResponse(statusCode int, durationMs int64, success bool) LogFields {
	f[FieldStatusCode] = statusCode
	f[FieldDuration] = durationMs
	f[FieldSuccess] = success
	return f
}

// ToSlice flattens f into slog's alternating key/value form.
func (f LogFields) ToSlice() []any {
	slice := make([]any, 0, len(f)*2)
	for k, v := range f {
		slice = append(slice, k, v)
	}
	return slice
}
