package stats

import (
	"github.com/odyssey-erp/backoffice/internal/filterview"
)

// ToggleCompare switches comparison mode in one batched update. Turning it on
// enables both compare dates empty, so the filters stay invalid until they are
// filled. Turning it off clears and disables them. It reports the new mode.
func ToggleCompare[D any](ctrl *filterview.Controller[D]) (bool, error) {
	on := false
	err := ctrl.Update(func(s *filterview.State) error {
		if s.Enabled(FieldCompareDateFrom) {
			for _, name := range compareFields {
				if err := s.Reset(name); err != nil {
					return err
				}
				if err := s.Disable(name); err != nil {
					return err
				}
			}
			return nil
		}
		on = true
		for _, name := range compareFields {
			if err := s.Reset(name); err != nil {
				return err
			}
			if err := s.Enable(name); err != nil {
				return err
			}
		}
		return nil
	})
	return on, err
}

// CompareMode reports whether comparison is on.
func CompareMode[D any](ctrl *filterview.Controller[D]) bool {
	return ctrl.Enabled(FieldCompareDateFrom)
}
