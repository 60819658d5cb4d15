package api

// registerMetricsRoutes mounts the Prometheus handler directly on the mux,
// outside huma and without auth.
func (s *Server) registerMetricsRoutes() {
	if s.options.PrometheusHandler == nil {
		return
	}
	s.mux.Handle("GET /metrics", s.options.PrometheusHandler)
}
