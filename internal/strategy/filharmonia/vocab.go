package filharmonia

const (
	defaultTitle      = "Koncert Filharmonii Narodowej"
	defaultOrchestra  = "Orkiestra Filharmonii Narodowej"
	programComposer   = "W programie"
	programPending    = "Repertuar do potwierdzenia"
	untitledWork      = "Utwór"
	phraseComposer    = "Program"
	city              = "Warsaw"
	maxTitle          = 100
	maxPieceTitle     = 250
	maxDescription    = 100
	shortTitle        = 30
	minRepertoireLine = 5
	defaultItemCap    = 30
)

// composers maps every recognised spelling to the canonical name stored on
// pieces, so Polish and English listings converge.
var composers = map[string]string{
	"Mozart": "Mozart", "Beethoven": "Beethoven", "Bach": "Bach", "Chopin": "Chopin",
	"Szymanowski": "Szymanowski", "Moniuszko": "Moniuszko", "Wieniawski": "Wieniawski",
	"Lutosławski": "Lutosławski", "Penderecki": "Penderecki", "Górecki": "Górecki",
	"Kilar": "Kilar", "Tchaikovsky": "Tchaikovsky", "Brahms": "Brahms", "Mahler": "Mahler",
	"Schumann": "Schumann", "Schubert": "Schubert", "Debussy": "Debussy", "Ravel": "Ravel",
	"Shostakovich": "Shostakovich", "Prokofiev": "Prokofiev", "Stravinsky": "Stravinsky",
	"Dvořák": "Dvořák", "Bartók": "Bartók", "Rachmaninoff": "Rachmaninoff",
	"Czajkowski": "Tchaikovsky", "Szostakowicz": "Shostakovich", "Prokofiew": "Prokofiev",
	"Strawiński": "Stravinsky", "Rachmaninow": "Rachmaninoff", "Dworzak": "Dvořák",
}

// composerOrder fixes the scan order so results follow a stable sequence.
var composerOrder = []string{
	"Mozart", "Beethoven", "Bach", "Chopin", "Szymanowski", "Moniuszko", "Wieniawski",
	"Lutosławski", "Penderecki", "Górecki", "Kilar", "Tchaikovsky", "Czajkowski", "Brahms",
	"Mahler", "Schumann", "Schubert", "Debussy", "Ravel", "Shostakovich", "Szostakowicz",
	"Prokofiev", "Prokofiew", "Stravinsky", "Strawiński", "Dvořák", "Dworzak", "Bartók",
	"Rachmaninoff", "Rachmaninow",
}

// roleNames translates Polish role nouns, including the locative and
// accusative forms used after "na" and "dla", into English roles.
var roleNames = map[string]string{
	"dyrygent": "conductor", "fortepian": "piano", "skrzypce": "violin",
	"wiolonczela": "cello", "altówka": "viola", "flet": "flute",
	"sopran": "soprano", "mezzosopran": "mezzo-soprano", "alt": "alto",
	"tenor": "tenor", "baryton": "baritone", "bas": "bass",
	"organy": "organ", "harfa": "harp", "klawesyn": "harpsichord",
	"klarnet": "clarinet", "obój": "oboe", "trąbka": "trumpet",
	"waltornia": "horn", "perkusja": "percussion", "gitara": "guitar",
	"chór": "choir", "orkiestra": "orchestra", "recytator": "narrator",

	"fortepianie": "piano", "skrzypcach": "violin", "wiolonczeli": "cello",
	"altówce": "viola", "flecie": "flute", "organach": "organ", "harfie": "harp",
	"klawesynie": "harpsichord", "gitarze": "guitar", "klarnecie": "clarinet",
	"oboju": "oboe", "trąbce": "trumpet", "waltorni": "horn", "perkusji": "percussion",

	"wiolonczelę": "cello", "altówkę": "viola",

	"conductor": "conductor", "piano": "piano", "violin": "violin", "cello": "cello",
	"viola": "viola", "flute": "flute", "soprano": "soprano", "baritone": "baritone",
	"choir": "choir", "orchestra": "orchestra",
}

var knownEnsembles = []string{
	"FudalaRot Duo", "Sinfonia Varsovia", "Orkiestra Filharmonii Narodowej",
	"Chór Filharmonii Narodowej", "Warsaw Philharmonic Orchestra", "Warsaw Philharmonic Choir",
}

// venueNouns are capitalized pairs that name the building, not a performer.
var venueNouns = map[string]bool{
	"Filharmonia Narodowa": true, "Sala Koncertowa": true,
	"Sala Kameralna": true, "Scena Muzyki": true,
}

var rooms = []string{"Sala Koncertowa", "Sala Kameralna"}

// formStems prefix the inflected Polish names of musical forms.
var formStems = []string{
	"sonat", "koncert", "symfoni", "kwartet", "trio", "suit",
	"preludi", "etiud", "nokturn", "walc", "mazur", "polonez",
}
