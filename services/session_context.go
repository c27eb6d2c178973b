package services

// SessionContext adalah identitas pemanggil yang diteruskan secara eksplisit
// ke setiap operasi order/session, bukan dibaca dari request.
type SessionContext struct {
	SessionID string
	TableID   uint
	// CustomerID nil untuk pelanggan anonim (hanya meja).
	CustomerID *string
}

func (sc SessionContext) HasSession() bool {
	return sc.SessionID != ""
}

func (sc SessionContext) IsSignedIn() bool {
	return sc.CustomerID != nil && *sc.CustomerID != ""
}
