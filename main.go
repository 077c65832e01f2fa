/*
Copyright © 2025 Joseph Goksu josephgoksu@gmail.com
*/
package main

import (
	"github.com/josephgoksu/tasksync/cmd"
	"github.com/josephgoksu/tasksync/internal/logger"
)

func main() {
	defer logger.HandlePanic()
	cmd.Execute()
}
