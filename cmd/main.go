package main

// @title          Semi-Markov Occupancy API
// @version        1.0
// @description    Long-run share of time a semi-Markov process spends in each state.
// @BasePath       /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	Execute()
}
