package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
)

var (
	chatsHandled     atomic.Int64
	intakesCompleted atomic.Int64
	matchesReturned  atomic.Int64
	leadsPublished   atomic.Int64
	leadsFailed      atomic.Int64
	geocodeCacheHit  atomic.Int64
	geocodeCacheMiss atomic.Int64
	geocodeFailures  atomic.Int64
)

func IncChatsHandled()     { chatsHandled.Add(1) }
func IncIntakesCompleted() { intakesCompleted.Add(1) }
func IncLeadsPublished()   { leadsPublished.Add(1) }
func IncLeadsFailed()      { leadsFailed.Add(1) }
func IncGeocodeCacheHit()  { geocodeCacheHit.Add(1) }
func IncGeocodeCacheMiss() { geocodeCacheMiss.Add(1) }
func IncGeocodeFailures()  { geocodeFailures.Add(1) }

func ObserveMatchesReturned(n int) { matchesReturned.Add(int64(n)) }

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")

	writeCounter(w, "heyhope_chats_handled_total", "Chat turns handled.", chatsHandled.Load())
	writeCounter(w, "heyhope_intakes_completed_total", "Intakes that produced a participant profile.", intakesCompleted.Load())
	writeCounter(w, "heyhope_matches_returned_total", "Study matches returned across all requests.", matchesReturned.Load())
	writeCounter(w, "heyhope_leads_published_total", "Lead events published to the event bus.", leadsPublished.Load())
	writeCounter(w, "heyhope_leads_failed_total", "Lead events that failed to publish.", leadsFailed.Load())
	writeCounter(w, "heyhope_geocode_cache_hits_total", "Geocode lookups served from cache.", geocodeCacheHit.Load())
	writeCounter(w, "heyhope_geocode_cache_misses_total", "Geocode lookups that went to the provider.", geocodeCacheMiss.Load())
	writeCounter(w, "heyhope_geocode_failures_total", "Geocode provider calls that failed.", geocodeFailures.Load())
}

func writeCounter(w http.ResponseWriter, name, help string, value int64) {
	fmt.Fprintf(w, "# HELP %s %s\n", name, help)
	fmt.Fprintf(w, "# TYPE %s counter\n", name)
	fmt.Fprintf(w, "%s %d\n", name, value)
}
