package chart

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/rs/zerolog/log"

	"fxwatch/internal/application/usecase/watch"
)

// Server serves the derived percentage-change series as a multi-line time
// chart. Each chart request goes through Refresh, so an open chart page also
// drives the rate-limited fallback polling.
type Server struct {
	svc        *watch.Service
	listen     string
	title      string
	refreshSec int
}

func NewServer(svc *watch.Service, listen, title string, refreshSec int) *Server {
	if refreshSec <= 0 {
		refreshSec = 5
	}
	return &Server{svc: svc, listen: listen, title: title, refreshSec: refreshSec}
}

func (s *Server) Run(ctx context.Context) error {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleIndex)
	mux.HandleFunc("/chart", s.handleChart)

	srv := &http.Server{Addr: s.listen, Handler: mux}

	go func() {
		<-ctx.Done()
		sctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		_ = srv.Shutdown(sctx)
	}()

	log.Info().Str("listen", s.listen).Msg("chart server started")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleIndex wraps the chart in a page that reloads it on the refresh cadence.
func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head><title>%s</title><meta http-equiv="refresh" content="%d"></head>
<body style="margin:0"><iframe src="/chart" style="border:0;width:100%%;height:100vh"></iframe></body>
</html>`, s.title, s.refreshSec)
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	series := s.svc.Refresh(r.Context(), time.Now())

	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{PageTitle: s.title, Width: "1200px", Height: "600px"}),
		charts.WithTitleOpts(opts.Title{Title: s.title}),
		charts.WithTooltipOpts(opts.Tooltip{Show: opts.Bool(true), Trigger: "axis"}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
		charts.WithXAxisOpts(opts.XAxis{Type: "time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "% change"}),
	)

	for _, sym := range s.svc.Symbols() {
		pts := series[sym]
		data := make([]opts.LineData, 0, len(pts))
		for _, p := range pts {
			ts := time.Unix(0, int64(p.Ts*float64(time.Second))).UTC()
			data = append(data, opts.LineData{Value: []any{ts.Format("2006-01-02 15:04:05"), p.Pct}})
		}
		line.AddSeries(sym, data,
			charts.WithLineChartOpts(opts.LineChart{ShowSymbol: opts.Bool(false), Smooth: opts.Bool(true)}))
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := line.Render(w); err != nil {
		log.Error().Err(err).Msg("chart render failed")
	}
}
