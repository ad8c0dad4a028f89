package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/taoyao-code/iec101-gateway/internal/protocol/iec101"
	"github.com/taoyao-code/iec101-gateway/internal/vectors"
)

var errVectorsFailed = errors.New("vector cases failed")

type rootOptions struct {
	width  int
	asJSON bool
	logger *zap.Logger
}

func (o *rootOptions) codec() (*iec101.Codec, error) {
	return iec101.NewCodec(iec101.WithAddressWidth(o.width))
}

func newRootCmd(logger *zap.Logger) *cobra.Command {
	opts := &rootOptions{logger: logger}
	root := &cobra.Command{
		Use:           "iec101ctl",
		Short:         "IEC 60870-5-101 link frame tool",
		Long:          "iec101ctl encodes, decodes and verifies FT1.2 link layer frames.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().IntVar(&opts.width, "width", 1, "link address width in bytes (1 or 2)")
	root.PersistentFlags().BoolVar(&opts.asJSON, "json", false, "print results as JSON lines")

	root.AddCommand(newDecodeCmd(opts), newEncodeCmd(opts), newVerifyCmd(opts))
	return root
}

func newDecodeCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "decode [hex]",
		Short: "Split a byte stream into link frames",
		Long:  "decode feeds hex bytes through the stream decoder. Without an argument it reads one stream per line from stdin.",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			codec, err := opts.codec()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				return decodeLine(out, codec.NewStreamDecoder(), args[0], opts.asJSON)
			}
			// 跨行保持半包
			sd := codec.NewStreamDecoder()
			sc := bufio.NewScanner(cmd.InOrStdin())
			for sc.Scan() {
				line := strings.TrimSpace(sc.Text())
				if line == "" {
					continue
				}
				if err := decodeLine(out, sd, line, opts.asJSON); err != nil {
					opts.logger.Warn("skip line", zap.Error(err))
				}
			}
			return sc.Err()
		},
	}
}

type decodeLineResult struct {
	Frame  string `json:"frame,omitempty"`
	Fault  string `json:"fault,omitempty"`
	Raw    string `json:"raw,omitempty"`
	Header string `json:"header,omitempty"`
}

func decodeLine(w io.Writer, sd *iec101.StreamDecoder, line string, asJSON bool) error {
	in, err := vectors.ParseHex(line)
	if err != nil {
		return err
	}
	frames, faults := sd.Feed(in)
	var rows []decodeLineResult
	for _, f := range frames {
		row := decodeLineResult{Frame: f.String()}
		if f.Kind() != iec101.KindSingleChar {
			row.Header = f.Control().String()
		}
		rows = append(rows, row)
	}
	for _, ft := range faults {
		rows = append(rows, decodeLineResult{Fault: ft.Status.String(), Raw: fmt.Sprintf("% X", ft.Raw)})
	}
	if n := sd.Pending(); n > 0 {
		rows = append(rows, decodeLineResult{Fault: iec101.StatusNeedMoreData.String(), Raw: fmt.Sprintf("%d bytes pending", n)})
	}
	return printRows(w, rows, asJSON, func(r decodeLineResult) string {
		if r.Fault != "" {
			return fmt.Sprintf("%-14s %s", r.Fault, r.Raw)
		}
		if r.Header != "" {
			return fmt.Sprintf("%-14s %s [%s]", "ok", r.Frame, r.Header)
		}
		return fmt.Sprintf("%-14s %s", "ok", r.Frame)
	})
}

func newEncodeCmd(opts *rootOptions) *cobra.Command {
	var (
		kind    string
		control uint8
		address uint16
		payload string
	)
	cmd := &cobra.Command{
		Use:   "encode",
		Short: "Encode one link frame",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			codec, err := opts.codec()
			if err != nil {
				return err
			}
			var f iec101.Frame
			switch kind {
			case "fixed":
				f = iec101.NewFixed(iec101.ParseControl(control), iec101.Address(address))
			case "variable":
				p, err := vectors.ParseHex(payload)
				if err != nil {
					return err
				}
				if f, err = iec101.NewVariable(iec101.ParseControl(control), iec101.Address(address), p); err != nil {
					return err
				}
			case "single_char", "e5":
				f = iec101.NewSingleChar()
			default:
				return fmt.Errorf("unknown kind %q", kind)
			}
			raw, err := codec.Encode(f)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "% X\n", raw)
			return err
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "fixed", "frame kind: fixed, variable, single_char")
	cmd.Flags().Uint8Var(&control, "control", 0, "control field byte")
	cmd.Flags().Uint16Var(&address, "address", 0, "link address")
	cmd.Flags().StringVar(&payload, "payload", "", "ASDU hex for variable frames")
	return cmd
}

func newVerifyCmd(opts *rootOptions) *cobra.Command {
	var files []string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Run encode/decode vector suites",
		Long:  "verify runs the built-in reference suites, or the YAML suites given with --file.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var suites []*vectors.Suite
			if len(files) == 0 {
				s, err := vectors.Builtin()
				if err != nil {
					return err
				}
				suites = s
			}
			for _, path := range files {
				s, err := vectors.Load(path)
				if err != nil {
					return err
				}
				suites = append(suites, s)
			}

			var all []vectors.Result
			for _, s := range suites {
				rs, err := vectors.Run(s)
				if err != nil {
					return fmt.Errorf("suite %s: %w", s.Name, err)
				}
				all = append(all, rs...)
			}
			err := printRows(cmd.OutOrStdout(), all, opts.asJSON, func(r vectors.Result) string {
				mark := "PASS"
				if !r.Pass {
					mark = "FAIL"
				}
				line := fmt.Sprintf("%s %s/%s/%s", mark, r.Suite, r.Op, r.Case)
				if r.Detail != "" {
					line += ": " + r.Detail
				}
				return line
			})
			if err != nil {
				return err
			}
			if n := vectors.Failed(all); n > 0 {
				return fmt.Errorf("%w: %d of %d", errVectorsFailed, n, len(all))
			}
			opts.logger.Info("vectors passed", zap.Int("cases", len(all)), zap.Int("suites", len(suites)))
			return nil
		},
	}
	cmd.Flags().StringArrayVarP(&files, "file", "f", nil, "YAML suite file (repeatable)")
	return cmd
}

func printRows[T any](w io.Writer, rows []T, asJSON bool, text func(T) string) error {
	if asJSON {
		enc := json.NewEncoder(w)
		for _, r := range rows {
			if err := enc.Encode(r); err != nil {
				return err
			}
		}
		return nil
	}
	for _, r := range rows {
		if _, err := fmt.Fprintln(w, text(r)); err != nil {
			return err
		}
	}
	return nil
}
