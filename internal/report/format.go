package report

import "fmt"

const (
	bytesPerMB = 1 << 20
	bytesPerGB = 1 << 30
)

// BytesToGB converts bytes to binary gigabytes.
func BytesToGB(b uint64) float64 { return float64(b) / bytesPerGB }

// BytesToMB converts bytes to binary megabytes.
func BytesToMB(b uint64) float64 { return float64(b) / bytesPerMB }

// Uptime is a whole-unit breakdown of seconds since boot.
type Uptime struct {
	Days    uint64
	Hours   uint64
	Minutes uint64
}

// SplitUptime drops leftover seconds.
func SplitUptime(seconds uint64) Uptime {
	return Uptime{
		Days:    seconds / 86400,
		Hours:   (seconds % 86400) / 3600,
		Minutes: (seconds % 3600) / 60,
	}
}

func (u Uptime) String() string {
	return fmt.Sprintf("%d days, %d hours, %d minutes", u.Days, u.Hours, u.Minutes)
}

// LoadPerCore divides the 1-minute load by the core count; 0 cores gives 0.
func LoadPerCore(load1 float64, cores int) float64 {
	if cores <= 0 {
		return 0
	}
	return load1 / float64(cores)
}

func gb(b uint64) string       { return fmt.Sprintf("%.2f GB", BytesToGB(b)) }
func tableGB(b uint64) string  { return fmt.Sprintf("%.1fG", BytesToGB(b)) }
func mb(b uint64) string       { return fmt.Sprintf("%.1f MB", BytesToMB(b)) }
func tableMB(b uint64) string  { return fmt.Sprintf("%.1fM", BytesToMB(b)) }
func percent(p float64) string { return fmt.Sprintf("%.2f%%", p) }
