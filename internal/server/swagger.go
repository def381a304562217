package server

//go:generate swag init -g internal/server/server.go -o docs

// @title webscan API
// @version 0.1
// @description Interactive documentation for the webscan security scanner API.
// @contact.name webscan Maintainers
// @contact.url https://github.com/cayfen/webscan
// @BasePath /
