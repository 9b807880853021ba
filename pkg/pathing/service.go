package pathing

import "os"

// EnsureDirs creates the directories that must exist before startup.
func EnsureDirs() error {
	dirs := []string{
		GetConfigDir(),
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return nil
}

func GetConfigDir() string {
	return "/etc/vbus_solar_monitor"
}
