package main

import (
	"fmt"
	"strings"

	cli "github.com/spf13/pflag"

	"aide/internal/ipc"
)

func main() {
	socket := cli.StringP("socket", "S", "/tmp/aide.sock", "Daemon socket path")
	cli.Parse()

	msg := ipc.ControlMessage{Cmd: "trigger"}
	if len(cli.Args()) > 0 {
		msg = ipc.ControlMessage{Cmd: "run", Text: strings.Join(cli.Args(), " ")}
	}

	if err := ipc.Send(*socket, msg); err != nil {
		fmt.Println("aide-daemon not running:", err)
		return
	}
}
