// Package preflight validates the environment before a run starts.
//
// A recut can grind for an hour, so anything that would make it fail at
// the end (missing ffmpeg, full disk, unreadable inputs) is checked up
// front. Report-only runs skip the video and disk checks.
package preflight

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"

	"github.com/Refragg/LoadlessUnleashed/internal/config"
)

// diskHeadroom is how much free space the work directory needs relative
// to the source video: every byte of source is re-encoded into segments
// and then concatenated, roughly doubling it, plus slack.
const diskHeadroom = 2.2

// Check is the result of a single preflight check.
type Check struct {
	Name     string
	Required int64 // required value in the check's unit, 0 if not applicable
	Actual   int64
	Passed   bool
	Warning  bool // true when a failure should not stop the run
	Message  string
}

// Result holds all preflight checks.
type Result struct {
	Checks []Check
	Passed bool
}

// String returns a human-readable line for the check.
func (c Check) String() string {
	status := "✓"
	if !c.Passed {
		status = "✗"
	} else if c.Warning {
		status = "⚠"
	}
	return fmt.Sprintf("  %s %s: %s", status, c.Name, c.Message)
}

// RunAll executes the preflight checks for the given configuration.
func RunAll(cfg *config.Config) *Result {
	result := &Result{Passed: true}

	add := func(c Check) {
		result.Checks = append(result.Checks, c)
		if !c.Passed && !c.Warning {
			result.Passed = false
		}
	}

	add(checkTimesFile(cfg.TimesPath))

	if !cfg.CreateVideo {
		return result
	}

	add(checkFFmpeg(cfg.FFmpegPath))
	add(checkFFprobe(cfg.FFprobePath, cfg.FFmpegPath))
	videoCheck := checkVideoFile(cfg.VideoPath)
	add(videoCheck)
	add(checkWorkDir(cfg.SegmentDir()))
	if videoCheck.Passed {
		add(checkDiskSpace(cfg.SegmentDir(), videoCheck.Actual))
	}

	return result
}

// checkTimesFile verifies the load times log exists and is readable.
func checkTimesFile(path string) Check {
	c := Check{Name: "times_file"}
	f, err := os.Open(path)
	if err != nil {
		c.Message = fmt.Sprintf("cannot open %s: %v", path, err)
		return c
	}
	f.Close()
	c.Passed = true
	c.Message = path
	return c
}

// checkFFmpeg verifies the ffmpeg binary runs and reports its version.
func checkFFmpeg(path string) Check {
	return checkBinary("ffmpeg", path)
}

// checkFFprobe verifies ffprobe, resolving it next to ffmpeg when no
// explicit path is set (mirrors the encoder's lookup).
func checkFFprobe(path, ffmpegPath string) Check {
	if path == "" {
		if sibling := siblingProbe(ffmpegPath); sibling != "" {
			path = sibling
		} else {
			path = "ffprobe"
		}
	}
	return checkBinary("ffprobe", path)
}

// checkBinary runs "<bin> -version" and extracts the version banner.
func checkBinary(name, path string) Check {
	c := Check{Name: name}
	out, err := exec.Command(path, "-version").Output()
	if err != nil {
		c.Message = fmt.Sprintf("%s not runnable: %v", path, err)
		return c
	}
	c.Passed = true
	c.Message = versionLine(string(out))
	return c
}

// versionLine extracts the version token from a -version banner, e.g.
// "ffmpeg 6.1.1" out of the full first line.
func versionLine(out string) string {
	line, _, _ := strings.Cut(out, "\n")
	fields := strings.Fields(line)
	if len(fields) >= 3 && fields[1] == "version" {
		return fields[0] + " " + fields[2]
	}
	if line == "" {
		return "present"
	}
	return line
}

// checkVideoFile verifies the source video exists. Actual carries its
// size for the disk check.
func checkVideoFile(path string) Check {
	c := Check{Name: "source_video"}
	fi, err := os.Stat(path)
	if err != nil {
		c.Message = fmt.Sprintf("cannot stat %s: %v", path, err)
		return c
	}
	if fi.IsDir() {
		c.Message = fmt.Sprintf("%s is a directory", path)
		return c
	}
	c.Passed = true
	c.Actual = fi.Size()
	c.Message = fmt.Sprintf("%s (%d MB)", path, fi.Size()/(1<<20))
	return c
}

// checkWorkDir verifies the segment directory can be created and written.
func checkWorkDir(dir string) Check {
	c := Check{Name: "work_dir"}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		c.Message = fmt.Sprintf("cannot create %s: %v", dir, err)
		return c
	}
	probe, err := os.CreateTemp(dir, ".preflight-*")
	if err != nil {
		c.Message = fmt.Sprintf("%s not writable: %v", dir, err)
		return c
	}
	probe.Close()
	os.Remove(probe.Name())
	c.Passed = true
	c.Message = dir
	return c
}

// checkDiskSpace verifies the work directory's filesystem has headroom
// for the segments plus the concatenated output.
func checkDiskSpace(dir string, videoSize int64) Check {
	c := Check{Name: "disk_space"}
	required := int64(float64(videoSize) * diskHeadroom)
	c.Required = required

	usage, err := disk.Usage(dir)
	if err != nil {
		// Cannot measure; let the run proceed and fail loudly later.
		c.Passed = true
		c.Warning = true
		c.Message = fmt.Sprintf("unable to check free space: %v", err)
		return c
	}

	c.Actual = int64(usage.Free)
	c.Passed = c.Actual >= required
	c.Message = fmt.Sprintf("%d MB free (need %d MB)", c.Actual/(1<<20), required/(1<<20))
	return c
}

// siblingProbe returns the ffprobe path next to the ffmpeg binary, or ""
// when ffmpeg is a bare command name.
func siblingProbe(ffmpegPath string) string {
	dir := filepath.Dir(ffmpegPath)
	if dir == "." {
		return ""
	}
	return filepath.Join(dir, "ffprobe")
}

// PrintResults prints all check results with fix suggestions for
// failures.
func PrintResults(result *Result) {
	fmt.Println("Preflight checks:")
	for _, check := range result.Checks {
		fmt.Println(check.String())
	}

	if !result.Passed {
		fmt.Println()
		fmt.Println("Suggestions:")
		for _, check := range result.Checks {
			if check.Passed {
				continue
			}
			switch check.Name {
			case "ffmpeg", "ffprobe":
				fmt.Printf("  - Install FFmpeg or point -%s at the binary\n", check.Name)
			case "times_file":
				fmt.Println("  - Pass the load times log as the first argument (or -times)")
			case "source_video":
				fmt.Println("  - Pass the run recording as the second argument (or -video)")
			case "disk_space":
				fmt.Println("  - Free up space or point -workdir at a larger volume")
			case "work_dir":
				fmt.Println("  - Point -workdir at a writable directory")
			}
		}
		fmt.Println()
		fmt.Println("Use -skip-preflight to run anyway.")
	}
	fmt.Println()
}
