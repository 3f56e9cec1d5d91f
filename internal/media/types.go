package media

type Type int

const (
	TypeVideo Type = iota
	TypeImage
	TypeAudio
	TypeUnknown
)

func (t Type) String() string {
	switch t {
	case TypeVideo:
		return "video"
	case TypeImage:
		return "image"
	case TypeAudio:
		return "audio"
	default:
		return "unknown"
	}
}
