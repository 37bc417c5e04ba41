package api

import (
	"encoding/json"
	"net/http"

	"github.com/NotCoffee418/p1reader/pkg/metrics"
	"github.com/NotCoffee418/p1reader/pkg/telegram"
	"github.com/gorilla/mux"
)

// NewRouter serves the producer endpoints: a status document, the last
// telegram, the live websocket stream and the Prometheus metrics.
func NewRouter(latest func() *telegram.Message, live http.Handler, m *metrics.Set) *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{
			"message": "P1 reader API",
			"status":  "running",
		})
	}).Methods("GET")

	r.HandleFunc("/latest", func(w http.ResponseWriter, r *http.Request) {
		msg := latest()
		if msg == nil {
			writeJSON(w, http.StatusNotFound, map[string]string{
				"error": "No telegrams available yet",
			})
			return
		}
		data, err := msg.ToJsonBytes()
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, map[string]string{
				"error": err.Error(),
			})
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write(data)
	}).Methods("GET")

	r.Handle("/ws", live).Methods("GET")
	r.Handle("/metrics", m.Handler()).Methods("GET")

	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
