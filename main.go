package main

import "github.com/kux109/RL-SAT/cmd"

func main() {
	cmd.Execute()
}
