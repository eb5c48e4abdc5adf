// ABOUTME: Buffer latency arithmetic shared by the ALSA backend and its stub
// ABOUTME: Converts a period geometry into microseconds of queued audio
package alsa

// latencyMicros returns the playback time of a full ring buffer.
func latencyMicros(periodSize, periodCount, rate uint32) uint32 {
	if rate == 0 {
		return 0
	}
	return uint32(uint64(periodSize) * uint64(periodCount) * 1000000 / uint64(rate))
}
