package competitor

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// Simulator exposes a Source over HTTP so HTTPSource can be exercised end to end
type Simulator struct {
	source Source
}

func NewSimulator(source Source) *Simulator {
	return &Simulator{source: source}
}

// NewSimulatorRouter returns a router with the simulator and a health probe registered
func NewSimulatorRouter(source Source) *mux.Router {
	r := mux.NewRouter()
	NewSimulator(source).RegisterRoutes(r)
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	}).Methods("GET")
	return r
}

func (s *Simulator) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/quotes", s.GetQuotes).Methods("GET")
}

func (s *Simulator) GetQuotes(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	name := query.Get("name")
	if name == "" {
		http.Error(w, "name parameter is required", http.StatusBadRequest)
		return
	}

	quotes, err := s.source.Quotes(r.Context(), name, query.Get("sku"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(quotesResponse{Quotes: quotes})
}
