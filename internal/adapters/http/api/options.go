package api

// Option configures optional routes of the Server.
type Option func(*Server)

// WithPrioritizer serves GET /prioritize/{submission_id} from p.
func WithPrioritizer(p PrioritizeDependencies) Option {
	return func(s *Server) {
		if p != nil {
			s.prioritizeHandler = NewPrioritizeHandler(p)
		}
	}
}
