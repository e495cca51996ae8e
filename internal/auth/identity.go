package auth

// AdminIdentity is the capability produced once by the authorization layer
// and passed explicitly into every privileged operation. Components never
// re-derive admin state from ambient request context.
type AdminIdentity struct {
	// Subject is the admin login subject, or "scheduler" for calls
	// authorized by the pre-shared cron secret.
	Subject string
	// Via records which credential produced this identity: "session" or
	// "secret".
	Via string
}

const (
	ViaSession = "session"
	ViaSecret  = "secret"
)

// Scheduler is the identity carried by cron-triggered calls.
func Scheduler() AdminIdentity {
	return AdminIdentity{Subject: "scheduler", Via: ViaSecret}
}
