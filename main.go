package main

import "news-hierarchy/cmd"

func main() {
	cmd.Execute()
}
