package platform

// pdmMaxCount is the widest SAMPLE.MAXCNT the nRF52840 PDM accepts (15 bits).
const pdmMaxCount = 0x7FFF

// dmaChunks runs xfer over buf in slices of at most limit samples and returns
// how many samples were filled. xfer reports the count it actually wrote; a
// short transfer ends the recording.
func dmaChunks(buf []int16, limit int, xfer func([]int16) int) int {
	n := 0
	for n < len(buf) {
		end := n + limit
		if end > len(buf) {
			end = len(buf)
		}
		want := end - n
		got := xfer(buf[n:end])
		n += got
		if got < want {
			break
		}
	}
	return n
}
