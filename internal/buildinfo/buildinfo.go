package buildinfo

const Graffiti = " __  __ ___ _    ___  \n|  \\/  | __| |  |   \\ \n| |\\/| | _|| |__| |) |\n|_|  |_|___|____|___/ \n\n"

var (
	BuildTag string = "v0.0.0"
	Name     string = "MELD"
	Time     string = ""
)

type buildinfo struct{}

func (buildinfo) Tag() string {
	return BuildTag
}

func (buildinfo) Name() string {
	return Name
}

func (buildinfo) Time() string {
	return Time
}

var Info buildinfo
