package stats

import (
	"net/http"
	_ "net/http/pprof"

	"github.com/OPENER-next/OpenStop-stats/log"
)

// StartHTTPPProf serves the net/http/pprof handlers on bind.
func StartHTTPPProf(bind string) {
	go func() {
		log.Errorf("pprof server: %v", http.ListenAndServe(bind, nil))
	}()
}
