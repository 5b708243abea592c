package deeplink

// ReasonCode classifies why deep-link validation failed.
//
// The set is closed and the string identifiers are stable: they cross the
// logging/telemetry boundary and must never change meaning between releases.
// They are safe to emit in any environment; the free-form Detail that
// accompanies them is not (see Result).
type ReasonCode string

const (
	ReasonInvalidURLFormat   ReasonCode = "INVALID_URL_FORMAT"
	ReasonInvalidScheme      ReasonCode = "INVALID_SCHEME"
	ReasonInvalidHost        ReasonCode = "INVALID_HOST"
	ReasonInvalidPath        ReasonCode = "INVALID_PATH"
	ReasonInvalidQueryParam  ReasonCode = "INVALID_QUERY_PARAM"
	ReasonDuplicateParam     ReasonCode = "DUPLICATE_PARAM"
	ReasonFragmentNotAllowed ReasonCode = "FRAGMENT_NOT_ALLOWED"
	ReasonURLTooLong         ReasonCode = "URL_TOO_LONG"
	ReasonInvalidTypeParam   ReasonCode = "INVALID_TYPE_PARAM"
	ReasonMissingStateToken  ReasonCode = "MISSING_STATE_TOKEN"
	ReasonInvalidStateToken  ReasonCode = "INVALID_STATE_TOKEN"
)

func (r ReasonCode) IsValid() bool {
	switch r {
	case ReasonInvalidURLFormat, ReasonInvalidScheme, ReasonInvalidHost,
		ReasonInvalidPath, ReasonInvalidQueryParam, ReasonDuplicateParam,
		ReasonFragmentNotAllowed, ReasonURLTooLong, ReasonInvalidTypeParam,
		ReasonMissingStateToken, ReasonInvalidStateToken:
		return true
	}
	return false
}

func (r ReasonCode) String() string {
	return string(r)
}
