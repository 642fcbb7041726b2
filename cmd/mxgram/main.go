/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/TheGoldLab/mxgram/cmd/mxgram/cmd"

func main() {
	cmd.Execute()
}
