package session

const (
	FlashSuccess = "success"
	FlashError   = "error"
	FlashWarning = "warning"
	FlashInfo    = "info"
)

// Flash is a one-shot message shown on the next rendered page.
type Flash struct {
	Type    string
	Message string
}

// SetFlash replaces any pending message.
func SetFlash(sess Session, kind, message string) {
	sess.Set(keyFlash, Flash{Type: kind, Message: message})
}

// PopFlash returns the pending message and clears it.
func PopFlash(sess Session) (Flash, bool) {
	if sess == nil {
		return Flash{}, false
	}
	f, ok := sess.Get(keyFlash).(Flash)
	if !ok {
		return Flash{}, false
	}
	sess.Delete(keyFlash)
	return f, true
}
