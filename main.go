package main

import "github.com/budgetlens/budgetlens/cmd"

func main() {
	cmd.Execute()
}
