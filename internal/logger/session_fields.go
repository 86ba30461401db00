package logger

import "go.uber.org/zap"

const (
	// FieldSession is the structured log field key for the interview session id.
	FieldSession = "session_id"
	// FieldModality is the structured log field key for the interview modality (voice or text).
	FieldModality = "modality"
	// FieldLanguage is the structured log field key for the interview language.
	FieldLanguage = "language"
)

// SessionFields returns the fields that identify an interview session.
func SessionFields(sessionID, modality, language string) []zap.Field {
	return StringFields(
		StringField{Key: FieldSession, Value: sessionID},
		StringField{Key: FieldModality, Value: modality},
		StringField{Key: FieldLanguage, Value: language},
	)
}

// WithSessionFields attaches the session fields to the provided logger.
func WithSessionFields(logger *zap.Logger, sessionID, modality, language string) *zap.Logger {
	return WithFields(logger, SessionFields(sessionID, modality, language)...)
}
