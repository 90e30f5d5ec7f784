package instance

import "os"

// GetID names the running process for logs. Explicit worker ids win over the
// Cloud Run revision, which wins over the container hostname.
func GetID() string {
	for _, key := range []string{"WORKER_ID", "K_REVISION", "HOSTNAME"} {
		if id := os.Getenv(key); id != "" {
			return id
		}
	}
	return "local"
}
