package main

import "estate-recommender/cmd"

func main() {
	cmd.Execute()
}
