package redisx

import "fmt"

const ns = "showseat:v1"

func KeyShowing(showingID int64) string {
	return fmt.Sprintf("%s:showing:%d", ns, showingID)
}

func KeyShowingSeatMap(showingID int64) string {
	return fmt.Sprintf("%s:showing:%d:seatmap", ns, showingID)
}

func KeyShowingReport(showingID int64) string {
	return fmt.Sprintf("%s:showing:%d:report", ns, showingID)
}

func KeyRateLimit(scope, id string) string {
	return fmt.Sprintf("%s:rl:%s:%s", ns, scope, id)
}

func KeyIdemBooking(showingID int64, idemKey string) string {
	return fmt.Sprintf("%s:idem:bookings:%d:%s", ns, showingID, idemKey)
}

func ChannelShowingsChanged() string {
	return ns + ":showings:changed"
}
