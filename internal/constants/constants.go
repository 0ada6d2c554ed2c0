package constants

const (
	AppName  = "nft-checkout"
	BagFile  = "bag.json"
	SchemaV1 = 1

	FilePerm      = 0o600
	DirectoryPerm = 0o700

	EnvFolderVar = "NFT_CHECKOUT_ENV"

	NativeAddr = "0x0000000000000000000000000000000000000000"
	WETHAddr   = "0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"

	// wallet error code for a user-rejected request (EIP-1193)
	UserRejectedCode = 4001
)

// Sudoswap bonding curve contracts.
const (
	SudoswapLinearCurve      = "0x5B6aC51d9B1CeDE0068a1B26533CAce807f883Ee"
	SudoswapExponentialCurve = "0x432f962D8209781da23fB37b6B59ee15dE7d9841"
)

// Event topics used to detect purchased tokens in a receipt.
const (
	ERC721TransferTopic  = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	ERC1155SingleTopic   = "0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62"
	PunkTransferSig      = "PunkTransfer(address,address,uint256)"
	CryptoPunksAddr      = "0xb47e3cd837dDF8e4c57F05d70Ab865de6e193BBB"
	DefaultNFTXAmmFeePct = 10
)

// Seaport / OpenSea.
const (
	SeaportAddr         = "0x00000000006c3852cbEf3e08E8dF289169EdE581"
	SeaportName         = "Seaport"
	SeaportVersion      = "1.1"
	OpenSeaConduitKey   = "0x0000007b02230091a7ed01230072f7006a004d60a8d4e71d599b8104250f0000"
	OpenSeaConduitAddr  = "0x1E0049783F008A0085193E00003D00cd54003c71"
	OpenSeaZoneAddr     = "0x004C00500000aD104D7DBd00e3ae0A5C00560C00"
	OpenSeaFeeRecipient = "0x0000a26b00c1F0DF003000390027140000fAa719"
	OpenSeaFeeBps       = 250
)

// LooksRare.
const (
	LooksRareExchangeAddr    = "0x59728544B08AB483533076417FbBB2fD0B17CE3a"
	LooksRareStrategyFixed   = "0x56244Bb70CbD3EA9Dc8007399F61dFC065190031"
	LooksRareTransferERC721  = "0xf42aa99F011A1fA7CDA90E5E98b277E306BcA83e"
	LooksRareTransferERC1155 = "0xFED24eC7E22f573c2e08AEF55aA6797Ca2b3A051"
	LooksRareName            = "LooksRareExchange"
	LooksRareVersion         = "1"
	LooksRareFeeBps          = 150
	LooksRareRoyaltyBps      = 50
	LooksRareMinPercentToAsk = 10000 - LooksRareFeeBps - LooksRareRoyaltyBps
)

// X2Y2.
const (
	X2Y2DelegateERC721   = "0xF849de01B080aDC3A814FaBE1E2087475cF2E354"
	X2Y2DelegateERC1155  = "0x024aC22ACdB367a3ae52A3D94aC6649fdc1f0779"
	X2Y2Network          = 1
	X2Y2IntentSell       = 1
	X2Y2DelegateType721  = 1
	X2Y2DelegateType1155 = 2
	X2Y2SignVersion      = 1
	X2Y2FeeBps           = 50
)
