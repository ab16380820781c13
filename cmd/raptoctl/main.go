// Command raptoctl is a manual line-mode SCPI test client: it reads
// shell-quoted lines from stdin, joins the tokens with spaces, and
// sends the result (plus a trailing newline) to a raptord SCPI
// listener, printing any query response. Grounded on the interactive
// shape of
// _examples/jangala-dev-devicecode-go/cmd/boardtest/main.go, with
// argument tokenizing done through github.com/google/shlex —
// previously an indirect-only dependency in the teacher's go.mod, now
// exercised directly.
package main

import (
	"bufio"
	"flag"
	"net"
	"os"
	"strings"
	"time"

	"github.com/google/shlex"
	"raptor/x/fmtx"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:5025", "raptord SCPI listener address")
	timeout := flag.Duration("timeout", 2*time.Second, "response read timeout")
	flag.Parse()

	conn, err := net.Dial("tcp", *addr)
	if err != nil {
		fmtx.Printf("raptoctl: dial %s: %v\n", *addr, err)
		os.Exit(1)
	}
	defer conn.Close()

	fmtx.Printf("raptoctl: connected to %s (Ctrl-D to quit)\n", *addr)
	scanner := bufio.NewScanner(os.Stdin)
	reader := bufio.NewReader(conn)

	for scanner.Scan() {
		raw := scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		tokens, err := shlex.Split(raw)
		if err != nil {
			fmtx.Printf("raptoctl: parse error: %v\n", err)
			continue
		}
		line := strings.Join(tokens, " ") + "\n"
		if _, err := conn.Write([]byte(line)); err != nil {
			fmtx.Printf("raptoctl: write error: %v\n", err)
			return
		}

		if strings.Contains(line, "?") {
			conn.SetReadDeadline(time.Now().Add(*timeout))
			resp, err := reader.ReadString('\n')
			if err != nil {
				fmtx.Printf("raptoctl: read error: %v\n", err)
				continue
			}
			fmtx.Printf("%s", resp)
		}
	}
}
