package main

import "github.com/KaramelBytes/tabdash/cmd"

func main() {
	cmd.Execute()
}
