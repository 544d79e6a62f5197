package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/google/shlex"

	"tofcam-go/bus"
	"tofcam-go/drivers/tof"
	"tofcam-go/param"
	"tofcam-go/regs"
	"tofcam-go/regs/regsim"
	"tofcam-go/services/camera"
	"tofcam-go/types"
)

const usage = `commands:
  size [W H [reset]]     get or negotiate the frame size
  maxsize                full sensor size
  rate [N/D]             get or set the frame rate
  maxrate W H            maximum rate for a size
  roi [X Y W H]          get or set the region of interest
  binning                current merge factors
  param NAME [VALUE]     get or set a parameter
  params                 list parameters
  profile NAME           apply a profile
  stream on|off          toggle the simulated stream
  reg NAME [VALUE]       peek or poke a simulated register
  reset                  software reset
  quit`

type shell struct {
	conn   *bus.Connection
	id     string
	dev    *regsim.Device
	stream *tof.SimStreamer
	params *param.Registry
	out    io.Writer
}

func (s *shell) run(ctx context.Context, in io.Reader) error {
	sc := bufio.NewScanner(in)
	fmt.Fprint(s.out, "> ")
	for sc.Scan() {
		if ctx.Err() != nil {
			return nil
		}
		args, err := shlex.Split(sc.Text())
		if err != nil {
			fmt.Fprintln(s.out, "parse:", err)
		} else if len(args) > 0 {
			if args[0] == "quit" || args[0] == "exit" {
				return nil
			}
			if err := s.exec(ctx, args); err != nil {
				fmt.Fprintln(s.out, "error:", err)
			}
		}
		fmt.Fprint(s.out, "> ")
	}
	return sc.Err()
}

func (s *shell) exec(ctx context.Context, args []string) error {
	cmd, rest := args[0], args[1:]
	switch cmd {
	case "help":
		fmt.Fprintln(s.out, usage)
		return nil
	case "size":
		if len(rest) == 0 {
			return s.call(ctx, camera.VerbGetFrameSize, nil)
		}
		w, h, err := size(rest)
		if err != nil {
			return err
		}
		reset := len(rest) > 2 && rest[2] == "reset"
		return s.call(ctx, camera.VerbSetFrameSize, types.SetFrameSizeReq{Size: types.FrameSize{Width: w, Height: h}, ResetROI: reset})
	case "maxsize":
		return s.call(ctx, camera.VerbGetMaxFrameSize, nil)
	case "rate":
		if len(rest) == 0 {
			return s.call(ctx, camera.VerbGetFrameRate, nil)
		}
		return s.call(ctx, camera.VerbSetFrameRate, rest[0])
	case "maxrate":
		w, h, err := size(rest)
		if err != nil {
			return err
		}
		return s.call(ctx, camera.VerbGetMaxFrameRate, types.MaxFrameRateReq{Size: types.FrameSize{Width: w, Height: h}})
	case "roi":
		if len(rest) == 0 {
			return s.call(ctx, camera.VerbGetROI, nil)
		}
		v, err := uints(rest, 4)
		if err != nil {
			return err
		}
		return s.call(ctx, camera.VerbSetROI, types.RegionOfInterest{X: v[0], Y: v[1], Width: v[2], Height: v[3]})
	case "binning":
		return s.call(ctx, camera.VerbGetBinning, nil)
	case "param":
		if len(rest) == 0 {
			return fmt.Errorf("param NAME [VALUE]")
		}
		if len(rest) == 1 {
			return s.call(ctx, camera.VerbGetParam, types.ParamGetReq{Name: rest[0], Refresh: true})
		}
		return s.call(ctx, camera.VerbSetParam, types.ParamSetReq{Name: rest[0], Value: paramValue(rest[1])})
	case "params":
		for _, n := range s.params.Names() {
			p, _ := s.params.Lookup(n)
			m := p.Meta()
			fmt.Fprintf(s.out, "  %-16s %-5s %-3s %s\n", n, p.Kind(), m.IO, m.Unit)
		}
		return nil
	case "profile":
		if len(rest) != 1 {
			return fmt.Errorf("profile NAME")
		}
		return s.call(ctx, camera.VerbApplyProfile, types.ProfileReq{Name: rest[0]})
	case "stream":
		if len(rest) != 1 {
			return fmt.Errorf("stream on|off")
		}
		switch rest[0] {
		case "on":
			s.stream.Start()
		case "off":
			s.stream.Stop()
		default:
			return fmt.Errorf("stream on|off")
		}
		fmt.Fprintln(s.out, "streaming:", s.stream.Running())
		return nil
	case "reg":
		return s.reg(rest)
	case "reset":
		return s.call(ctx, camera.VerbReset, nil)
	}
	return fmt.Errorf("unknown command %q (try help)", cmd)
}

// reg bypasses the camera: pokes do not run write hooks or notify caches.
func (s *shell) reg(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("reg NAME [VALUE]")
	}
	name := regs.Name(args[0])
	if len(args) == 2 {
		v, err := strconv.ParseUint(args[1], 0, 32)
		if err != nil {
			return err
		}
		s.dev.Poke(name, uint32(v))
	}
	v, ok := s.dev.Peek(name)
	if !ok {
		return regs.ErrUnknownRegister
	}
	fmt.Fprintf(s.out, "%s = %d (0x%x)\n", name, v, v)
	return nil
}

func (s *shell) call(ctx context.Context, verb string, payload any) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	m, err := s.conn.RequestWait(ctx, s.conn.NewMessage(camera.CtrlTopic(s.id, verb), payload, false))
	if err != nil {
		return err
	}
	b, err := json.Marshal(m.Payload)
	if err != nil {
		return err
	}
	fmt.Fprintln(s.out, string(b))
	return nil
}

func size(args []string) (w, h uint32, err error) {
	v, err := uints(args, 2)
	if err != nil {
		return 0, 0, err
	}
	return v[0], v[1], nil
}

func uints(args []string, n int) ([]uint32, error) {
	if len(args) < n {
		return nil, fmt.Errorf("want %d numbers", n)
	}
	out := make([]uint32, n)
	for i := range out {
		v, err := strconv.ParseUint(args[i], 0, 32)
		if err != nil {
			return nil, err
		}
		out[i] = uint32(v)
	}
	return out, nil
}

// paramValue types shell input the way a config file would.
func paramValue(s string) any {
	switch strings.ToLower(s) {
	case "true", "on":
		return true
	case "false", "off":
		return false
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return f
	}
	return s
}
