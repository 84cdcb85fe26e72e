// This program replays captured mempool feed files through an engine
// session for tuning the signal pipeline without a live connection.
package main

import "github.com/tumigisla/zenpool/app/tooling/replay/commands"

func main() {
	commands.Execute()
}
