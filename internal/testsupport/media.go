package testsupport

import "fmt"

// FFmpegCopyScript is a stub ffmpeg body that copies fixture to the last
// argument, which is where the sampler asks for the frame to be written.
func FFmpegCopyScript(fixture string) string {
	return fmt.Sprintf("for a in \"$@\"; do last=\"$a\"; done\ncp %q \"$last\"\n", fixture)
}

// FFmpegFailScript is a stub ffmpeg body that always fails.
func FFmpegFailScript() string {
	return "echo 'decode error' >&2\nexit 1\n"
}

// FFprobeScript is a stub ffprobe body reporting a container of the given
// duration with optional format tags.
func FFprobeScript(duration float64, tags map[string]string) string {
	tagJSON := ""
	for key, value := range tags {
		if tagJSON != "" {
			tagJSON += ","
		}
		tagJSON += fmt.Sprintf("%q:%q", key, value)
	}
	payload := fmt.Sprintf(`{"streams":[{"index":0,"codec_type":"video","codec_name":"h264"}],"format":{"duration":"%.3f","tags":{%s}}}`, duration, tagJSON)
	return fmt.Sprintf("cat <<'JSON'\n%s\nJSON\n", payload)
}
