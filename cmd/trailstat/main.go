// Command trailstat pushes points through trails of several capacities on the
// software device and reports the upload traffic per push.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"quarktrail/quarkgl"
	"quarktrail/trail"
	"quarktrail/vmath"

	"github.com/fatih/color"
)

type result struct {
	capacity       int
	pushes         int
	partialPerPush float64
	elemsPerPush   float64
	connected      bool
	write, index   int
}

func main() {
	var (
		capsFlag = flag.String("capacities", "2,3,16,128,1024", "Comma-separated trail capacities.")
		pushes   = flag.Int("pushes", 1000, "Points pushed per trail.")
	)
	flag.Parse()

	caps, err := parseCapacities(*capsFlag)
	if err != nil {
		fail("%v", err)
	}
	if *pushes < 0 {
		fail("pushes must be >= 0")
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "capacity\tpushes\tuploads/push\telements/push\tcursors\tconnected\t")
	for _, n := range caps {
		res, err := measure(n, *pushes)
		if err != nil {
			_ = tw.Flush()
			fail("capacity %d: %v", n, err)
		}
		fmt.Fprintf(tw, "%d\t%d\t%.2f\t%.2f\t%d/%d\t%t\t\n",
			res.capacity, res.pushes, res.partialPerPush, res.elemsPerPush, res.write, res.index, res.connected)
	}
	_ = tw.Flush()
}

func measure(capacity, pushes int) (result, error) {
	dev := quarkgl.NewDevice()
	r, err := trail.FromPoint(dev, capacity, vmath.Vec3{})
	if err != nil {
		return result{}, err
	}
	defer r.Release()

	base := dev.Stats()
	for i := 1; i <= pushes; i++ {
		r.Push(vmath.V3(float32(i), 0, 0))
	}
	st := dev.Stats()

	cam := quarkgl.DefaultCamera()
	if err := r.Render(0, &cam); err != nil {
		return result{}, err
	}

	res := result{capacity: capacity, pushes: pushes, connected: connected(r.Segments())}
	res.write, res.index = r.Cursors()
	if pushes > 0 {
		res.partialPerPush = float64(st.PartialUploads-base.PartialUploads) / float64(pushes)
		res.elemsPerPush = float64(st.ElementsUploaded-base.ElementsUploaded) / float64(pushes)
	}
	return res, nil
}

// connected reports whether segs form one chain, each starting where the
// previous one ended.
func connected(segs [][2]uint32) bool {
	for i := 1; i < len(segs); i++ {
		if segs[i][0] != segs[i-1][1] {
			return false
		}
	}
	return true
}

func parseCapacities(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, fmt.Errorf("capacity %q: %w", f, err)
		}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no capacities in %q", s)
	}
	return out, nil
}

func fail(format string, args ...any) {
	_, _ = color.New(color.FgRed).Fprintf(os.Stderr, "trailstat: "+format+"\n", args...)
	os.Exit(2)
}
