package services

// ReloadIfChanged exposes the watcher callback to the external tests.
func (s *MacroService) ReloadIfChanged() (bool, error) {
	return s.reloadIfChanged()
}
