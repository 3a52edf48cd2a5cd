package main

import "github.com/nguyentranbao-ct/chat-server/cmd"

func main() {
	cmd.Execute()
}
