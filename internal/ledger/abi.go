package ledger

// Minimal ABIs: the settlement event on the marketplace contract and the
// ownerOf view on the asset registry. Nothing else on either contract is
// consumed.

const marketplaceAbiJson = `[
    {
        "anonymous": false,
        "inputs": [
            {"indexed": true, "name": "tokenId", "type": "uint256"},
            {"indexed": true, "name": "seller", "type": "address"},
            {"indexed": true, "name": "buyer", "type": "address"},
            {"indexed": false, "name": "price", "type": "uint256"},
            {"indexed": false, "name": "paymentToken", "type": "address"},
            {"indexed": false, "name": "royaltyPaid", "type": "uint256"},
            {"indexed": false, "name": "platformFee", "type": "uint256"},
            {"indexed": false, "name": "partnerFee", "type": "uint256"}
        ],
        "name": "ArtworkSold",
        "type": "event"
    }
]`

const registryAbiJson = `[
    {
        "inputs": [{"name": "tokenId", "type": "uint256"}],
        "name": "ownerOf",
        "outputs": [{"name": "", "type": "address"}],
        "stateMutability": "view",
        "type": "function"
    }
]`

const settlementEventName = "ArtworkSold"
