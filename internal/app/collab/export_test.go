package collab

// SetAfterScan installs fn to run after ReconcileBackRefs has read the
// projects and before it reads the users.
func (s *Service) SetAfterScan(fn func()) { s.afterScan = fn }
